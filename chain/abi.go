package chain

// 合约 ABI 以 JSON 常量内置；字段顺序与链上定义一致，解码走强类型绑定，
// 错位在解析阶段即报错而不是运行时拿到错值。

const erc20ABI = `[
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const orderBookABI = `[
  {"type":"function","name":"createOrder","stateMutability":"nonpayable","inputs":[
    {"name":"tokenAsset","type":"address"},
    {"name":"paymentAsset","type":"address"},
    {"name":"amount","type":"uint256"},
    {"name":"price","type":"uint256"},
    {"name":"orderType","type":"uint8"},
    {"name":"orderSide","type":"uint8"}
  ],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"cancelOrder","stateMutability":"nonpayable","inputs":[{"name":"orderId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"getBestPrices","stateMutability":"view","inputs":[
    {"name":"tokenAsset","type":"address"},
    {"name":"paymentAsset","type":"address"}
  ],"outputs":[{"name":"bestBuyPrice","type":"uint256"},{"name":"bestSellPrice","type":"uint256"}]},
  {"type":"function","name":"getTraderOrders","stateMutability":"view","inputs":[
    {"name":"trader","type":"address"},
    {"name":"offset","type":"uint256"},
    {"name":"limit","type":"uint256"}
  ],"outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"orders","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[
    {"name":"id","type":"uint256"},
    {"name":"trader","type":"address"},
    {"name":"tokenAsset","type":"address"},
    {"name":"paymentAsset","type":"address"},
    {"name":"amount","type":"uint256"},
    {"name":"price","type":"uint256"},
    {"name":"filled","type":"uint256"},
    {"name":"timestamp","type":"uint256"},
    {"name":"expiry","type":"uint256"},
    {"name":"orderType","type":"uint8"},
    {"name":"orderSide","type":"uint8"},
    {"name":"status","type":"uint8"}
  ]},
  {"type":"event","name":"OrderCreated","anonymous":false,"inputs":[
    {"name":"id","type":"uint256","indexed":true},
    {"name":"trader","type":"address","indexed":true},
    {"name":"orderSide","type":"uint8","indexed":false},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"price","type":"uint256","indexed":false}
  ]},
  {"type":"event","name":"OrderCancelled","anonymous":false,"inputs":[
    {"name":"id","type":"uint256","indexed":true}
  ]}
]`
